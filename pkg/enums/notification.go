package enums

// NotificationType labels in-app notifications delivered to shoppers.
type NotificationType string

const (
	NotificationOrderReceipt  NotificationType = "order_receipt"
	NotificationReviewRequest NotificationType = "review_request"
)

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	switch n {
	case NotificationOrderReceipt, NotificationReviewRequest:
		return true
	}
	return false
}
