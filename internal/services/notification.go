package service

import (
	"context"
	"fmt"
	"time"

	"github.com/arnavkapoor/stitchkart-commerce/internal/models"
	repository "github.com/arnavkapoor/stitchkart-commerce/internal/repositories"
	"github.com/arnavkapoor/stitchkart-commerce/pkg/sendgrid"
	"github.com/google/uuid"
)

type NotificationService interface {
	SendEmail(ctx context.Context, req *models.EmailNotificationRequest) (*models.Notification, error)
	SendOrderConfirmation(ctx context.Context, user *models.User, order *models.Order) error
}

type notificationService struct {
	repo         repository.NotificationRepository
	emailService sendgrid.EmailService
}

func NewNotificationService(repo repository.NotificationRepository, emailService sendgrid.EmailService) NotificationService {
	return &notificationService{repo: repo, emailService: emailService}
}

// SendEmail records the notification, attempts delivery and stores the
// outcome.
func (n *notificationService) SendEmail(ctx context.Context, req *models.EmailNotificationRequest) (*models.Notification, error) {

	notification := &models.Notification{
		ID:        uuid.New(),
		Type:      models.NotificationTypeEmail,
		Recipient: req.To,
		Subject:   req.Subject,
		Content:   req.Content,
		Status:    models.NotificationStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := n.repo.CreateNotification(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification record: %w", err)
	}

	if err := n.emailService.Send(ctx, req); err != nil {
		notification.Status = models.NotificationStatusFailed

		if updateErr := n.repo.UpdateNotificationStatus(ctx, notification.ID, notification.Status); updateErr != nil {
			return nil, fmt.Errorf("failed to record delivery failure: %w", updateErr)
		}

		return notification, fmt.Errorf("failed to send email: %w", err)
	}

	notification.Status = models.NotificationStatusSent
	if err := n.repo.UpdateNotificationStatus(ctx, notification.ID, notification.Status); err != nil {
		return nil, fmt.Errorf("failed to record delivery: %w", err)
	}

	return notification, nil
}

func (n *notificationService) SendOrderConfirmation(ctx context.Context, user *models.User, order *models.Order) error {
	content := fmt.Sprintf(
		"Hi %s,\n\nWe received your payment of %s for order %s. "+
			"We'll let you know as soon as it ships.\n\nThanks for shopping with us!",
		user.Name, order.TotalPrice.StringFixed(2), order.ID)

	_, err := n.SendEmail(ctx, &models.EmailNotificationRequest{
		To:      user.Email,
		Subject: fmt.Sprintf("Order %s confirmed", order.ID),
		Content: content,
	})

	return err
}
