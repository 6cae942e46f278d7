package queue

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Dispatcher processa um evento de lead. Devolve erro SOMENTE para falha
// transitória (store/rede); paradas esperadas (org inexistente, ninguém para
// notificar) são resolvidas dentro e voltam nil para a mensagem ser ack'ada.
type Dispatcher interface {
	Dispatch(ctx context.Context, event LeadEvent) error
}

type Worker struct {
	Channel    *amqp.Channel
	Dispatcher Dispatcher
}

func NewWorker(ch *amqp.Channel, dispatcher Dispatcher) *Worker {
	return &Worker{
		Channel:    ch,
		Dispatcher: dispatcher,
	}
}

func (w *Worker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName, // fila
		"",        // consumer
		false,     // auto-ack (manual é mais seguro)
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		log.Fatalf("❌ Falha ao registrar consumidor RabbitMQ: %s", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			w.handle(d)
		}
	}()

	log.Printf(" [*] Worker de notificação rodando na fila '%s'", queueName)
	<-forever
}

// handle processa UMA delivery. Entrega é at-least-once: a mesma mensagem pode
// chegar de novo depois de timeout/crash, e o dispatcher aguenta re-execução.
func (w *Worker) handle(d amqp.Delivery) {
	var event LeadEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		log.Printf("❌ [WORKER] JSON inválido: %s", err)
		// Mensagem podre. Nack sem requeue: vai pra DLQ, não trava a fila.
		d.Nack(false, false)
		return
	}

	// Panic em evento malformado não pode derrubar o consumidor nem gerar
	// loop infinito de redelivery.
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("❌ [WORKER] Panic processando lead=%s type=%s: %v", event.LeadID, event.Type, rec)
			d.Nack(false, false)
		}
	}()

	log.Printf("📥 [WORKER] Evento %s recebido (lead=%s)", event.Type, event.LeadID)

	if err := w.Dispatcher.Dispatch(context.Background(), event); err != nil {
		log.Printf("❌ [WORKER] Erro transitório no dispatch (lead=%s): %s", event.LeadID, err)
		// Redelivery É o mecanismo de retry: nack sem requeue manda pra DLX,
		// e a política de redrive da DLQ devolve pra fila.
		d.Nack(false, false)
		return
	}

	log.Printf("✅ [WORKER] Evento %s processado (lead=%s)", event.Type, event.LeadID)
	d.Ack(false)
}
