package usecase

import (
	"github.com/xavierca1/ligue-leads/internal/entity"
)

// ResolveOrgRecipients aplica a política de notificação da organização:
//
//   - all_members: todo membro ativo com pelo menos um opt-in de canal.
//   - assigned_only: se um usuário específico foi atribuído e é membro ativo,
//     exatamente ele; senão, owners/managers ativos com opt-in. Sem usuário
//     atribuído, o mesmo fallback de owners/managers.
//
// O gating por canal (email/SMS habilitado, endereço presente) acontece
// depois, na hora do envio.
func ResolveOrgRecipients(policy string, members []entity.Membership, assignedUserID string) []entity.Membership {
	if policy == entity.NotifyPolicyAssignedOnly {
		if assignedUserID != "" {
			for _, m := range members {
				if m.UserID == assignedUserID && m.Active {
					return []entity.Membership{m}
				}
			}
		}
		return ownersAndManagers(members)
	}

	// all_members (e qualquer política desconhecida cai no comportamento
	// mais largo, que ainda respeita opt-in)
	var recipients []entity.Membership
	for _, m := range members {
		if m.Active && m.HasOptIn() {
			recipients = append(recipients, m)
		}
	}
	return recipients
}

func ownersAndManagers(members []entity.Membership) []entity.Membership {
	var recipients []entity.Membership
	for _, m := range members {
		if m.Active && m.IsOwnerOrManager() && m.HasOptIn() {
			recipients = append(recipients, m)
		}
	}
	return recipients
}
