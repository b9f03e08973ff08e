package notify

import (
	"fmt"
	"strings"
)

// ComposeOrderConfirmation renders the subject and plain-text body for a
// confirmation email. The order details arrive as the JSON string the client
// submitted at verification time and are included verbatim.
func ComposeOrderConfirmation(p OrderConfirmationPayload) (subject, body string) {
	subject = "Your order is confirmed"
	var b strings.Builder
	b.WriteString("Thank you for your purchase!\n\n")
	fmt.Fprintf(&b, "Payment reference: %s\n\n", p.TransactionID)
	if strings.TrimSpace(p.OrderDetails) != "" {
		b.WriteString("Order summary:\n")
		b.WriteString(p.OrderDetails)
		b.WriteString("\n")
	}
	b.WriteString("\nWe will let you know once your order ships.\n")
	return subject, b.String()
}
