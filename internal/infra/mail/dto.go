package mail

// LeadNotificationData é o conteúdo do email de novo lead. Campos vindos do
// caller (nome, mensagem, página) entram aqui já mascarados/escapados.
type LeadNotificationData struct {
	LeadID     string
	MaskedName string
	Page       string
	Message    string
	Reason     string // preenchido só em unassignment
}

type SendResult struct {
	Success   bool
	MessageID string
	Error     string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}
