package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "ex.leads"
	QueueName    = "q.lead-notifications"
	DLQName      = "q.lead-notifications.dlq"
	DLXName      = "ex.leads.dlx" // Dead Letter Exchange

	// Eventos de assignment vão para a fila de notificação; lead.created é
	// fan-out best-effort para quem quiser escutar (sem binding nosso).
	RoutingKeyAssigned   = "k.lead.assigned"
	RoutingKeyUnassigned = "k.lead.unassigned"
	RoutingKeyCreated    = "k.lead.created"
)

type RabbitMQ struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewRabbitMQ(user, pass, host, port string) (*RabbitMQ, error) {
	dsn := fmt.Sprintf("amqp://%s:%s@%s:%s/", user, pass, host, port)

	conn, err := amqp.Dial(dsn)
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar no RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir canal: %w", err)
	}

	if err := setupTopology(ch); err != nil {
		return nil, err
	}

	return &RabbitMQ{Conn: conn, Ch: ch}, nil
}

func setupTopology(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(DLXName, "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	_, err = ch.QueueDeclare(DLQName, true, false, false, false, nil)
	if err != nil {
		return err
	}

	if err := ch.QueueBind(DLQName, RoutingKeyAssigned, DLXName, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(DLQName, RoutingKeyUnassigned, DLXName, false, nil); err != nil {
		return err
	}

	args := amqp.Table{
		"x-dead-letter-exchange": DLXName, // Nack sem requeue manda pra DLX
	}

	err = ch.ExchangeDeclare(ExchangeName, "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	_, err = ch.QueueDeclare(QueueName, true, false, false, false, args)
	if err != nil {
		return err
	}

	if err := ch.QueueBind(QueueName, RoutingKeyAssigned, ExchangeName, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(QueueName, RoutingKeyUnassigned, ExchangeName, false, nil); err != nil {
		return err
	}

	return nil
}
