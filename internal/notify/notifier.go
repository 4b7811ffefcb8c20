// Package notify delivers the one-time "documents are ready" email when an
// order reaches its terminal state.
package notify

import (
	"context"
	"fmt"

	"github.com/notorious-utopia/egrn/internal/order/models"
	"github.com/notorious-utopia/egrn/internal/user"
)

// Notifier sends exactly one outbound message per terminal transition. A send
// failure is reported to the caller but must never roll back the status
// update that preceded it.
type Notifier interface {
	Notify(ctx context.Context, u *user.User, order *models.Order) error
}

// Subject is the fixed subject line of the completion notification.
const Subject = "EGRN Helper: обновлен статус заявки"

// Body renders the completion notification referencing the order's original
// submission timestamp, converted to the display zone.
func Body(order *models.Order) string {
	return fmt.Sprintf(
		"Добрый день, \r\n\nПолучены документы от Росреестра по вашей заявке от %s. "+
			"Ознакомиться с ними можно в личном кабинете. \r\n\nС уважением, \r\nEGRN Helper",
		models.FormatDisplayTime(order.CreatedAt),
	)
}
