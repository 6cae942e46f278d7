package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMaskName - "Jane Doe" vira "Jane D." no conteúdo do email
func TestMaskName(t *testing.T) {
	assert.Equal(t, "Jane D.", MaskName("Jane Doe"))
	assert.Equal(t, "Maria S.", MaskName("  Maria da Silva "))
	assert.Equal(t, "Jane", MaskName("Jane"))
	assert.Equal(t, "", MaskName("   "))
}

// TestBuildBodyEscapesUserText - texto do caller nunca entra como HTML cru
func TestBuildBodyEscapesUserText(t *testing.T) {
	body := buildBody(LeadNotificationData{
		LeadID:     "lead-1",
		MaskedName: "Jane D.",
		Message:    `<script>alert("xss")</script>`,
		Page:       "/pricing?q=<b>",
	})

	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.NotContains(t, body, "?q=<b>")
	assert.Contains(t, body, "Jane D.")
}

// TestBuildBodyIncludesReasonOnUnassignment
func TestBuildBodyIncludesReasonOnUnassignment(t *testing.T) {
	body := buildBody(LeadNotificationData{
		LeadID:     "lead-1",
		MaskedName: "Jane D.",
		Reason:     "org desativada",
	})

	assert.Contains(t, body, "Motivo")
	assert.Contains(t, body, "org desativada")
}
