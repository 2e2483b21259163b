package services

import (
	"context"
	"log"
	"time"

	"sync-backend/internal/clients"
	"sync-backend/internal/metrics"
	"sync-backend/internal/models"
	"sync-backend/internal/repository"

	"github.com/google/uuid"
)

// Notification template kinds, one variant per privacy situation
const (
	TemplateTransferReceived = "transfer_received"
	TemplateTransferSent     = "transfer_sent"
	TemplateApprovalRequired = "approval_required"
)

// NotificationPublisher is the transport slice the dispatcher needs
type NotificationPublisher interface {
	PublishTransferNotification(notification *clients.TransferNotification) error
}

// notificationJob one transfer to notify both parties about
type notificationJob struct {
	transfer   models.Transfer
	fromWallet models.Wallet
	toWallet   models.Wallet
}

// NotificationService best-effort transfer notification dispatcher.
// Jobs are queued on a buffered channel and handled by a detached worker;
// a full queue drops the job rather than blocking the sync pipeline, and
// publish failures are logged and counted but never propagate.
type NotificationService struct {
	publisher   NotificationPublisher
	accountRepo repository.AccountRepository
	queue       chan notificationJob
	errCh       chan error
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewNotificationService creates the dispatcher with the given queue size
func NewNotificationService(publisher NotificationPublisher, accountRepo repository.AccountRepository, queueSize int) *NotificationService {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &NotificationService{
		publisher:   publisher,
		accountRepo: accountRepo,
		queue:       make(chan notificationJob, queueSize),
		errCh:       make(chan error, 64),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start launches the dispatch worker and the error drain
func (s *NotificationService) Start() {
	go s.run()
	go s.drainErrors()
	log.Println("✅ Notification dispatcher started")
}

// Stop drains the queue and stops the worker
func (s *NotificationService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	log.Println("🛑 Notification dispatcher stopped")
}

// NotifyNewTransfer enqueues notifications for both parties of a transfer.
// Non-blocking: a full queue drops the job and bumps a counter.
func (s *NotificationService) NotifyNewTransfer(transfer *models.Transfer, fromWallet, toWallet *models.Wallet) {
	if transfer == nil || fromWallet == nil || toWallet == nil {
		return
	}
	job := notificationJob{
		transfer:   *transfer,
		fromWallet: *fromWallet,
		toWallet:   *toWallet,
	}
	select {
	case s.queue <- job:
	default:
		metrics.NotificationQueueDropped.Inc()
		log.Printf("⚠️ Notification queue full, dropping notifications for transfer %s", transfer.TxHash)
	}
}

func (s *NotificationService) run() {
	defer close(s.doneCh)
	for {
		select {
		case job := <-s.queue:
			s.dispatch(job)
		case <-s.stopCh:
			// Drain whatever is already queued before exiting
			for {
				select {
				case job := <-s.queue:
					s.dispatch(job)
				default:
					return
				}
			}
		}
	}
}

// dispatch sends one notification per party. A failure for one party does
// not prevent the other party's notification.
func (s *NotificationService) dispatch(job notificationJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	accounts, err := s.accountRepo.FindByIDs(ctx, []uint{job.fromWallet.AccountID, job.toWallet.AccountID})
	if err != nil {
		s.reportError(err)
		metrics.NotificationsFailed.WithLabelValues("", "account_lookup").Add(2)
		return
	}

	send := func(accountID, counterpartID uint, template string) {
		account := accounts[accountID]
		if account == nil {
			metrics.NotificationsFailed.WithLabelValues(template, "missing_account").Inc()
			return
		}
		notification := &clients.TransferNotification{
			NotificationID: uuid.NewString(),
			AccountID:      accountID,
			Contact:        account.Email,
			TemplateKind:   template,
			TxHash:         job.transfer.TxHash,
			NetworkID:      job.transfer.NetworkID,
			NetworkName:    job.transfer.NetworkName,
			TokenSymbol:    job.transfer.TokenSymbol,
			Amount:         job.transfer.DerivedAmount,
			CounterpartID:  counterpartID,
			CreatedAt:      time.Now(),
		}
		if err := s.publisher.PublishTransferNotification(notification); err != nil {
			s.reportError(err)
			metrics.NotificationsFailed.WithLabelValues(template, "publish").Inc()
			return
		}
		metrics.NotificationsSent.WithLabelValues(template).Inc()
	}

	senderTemplate := TemplateTransferSent
	if !job.transfer.ApprovedBySender {
		senderTemplate = TemplateApprovalRequired
	}
	receiverTemplate := TemplateTransferReceived
	if !job.transfer.ApprovedByReceiver {
		receiverTemplate = TemplateApprovalRequired
	}

	send(job.fromWallet.AccountID, job.toWallet.AccountID, senderTemplate)
	send(job.toWallet.AccountID, job.fromWallet.AccountID, receiverTemplate)
}

func (s *NotificationService) reportError(err error) {
	select {
	case s.errCh <- err:
	default:
	}
}

// drainErrors surfaces dispatch failures in the log without ever blocking
// the worker
func (s *NotificationService) drainErrors() {
	for {
		select {
		case err := <-s.errCh:
			log.Printf("⚠️ Notification dispatch error: %v", err)
		case <-s.doneCh:
			return
		}
	}
}
