package usecase

import (
	"fmt"
	"math"

	"schoolfee/domain"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders a whole-unit, thousands-grouped amount, e.g. "PKR 15,000".
func FormatAmount(currency string, amount float64) string {
	return amountPrinter.Sprintf("%s %d", currency, int64(math.Round(amount)))
}

// MessageTemplate renders reminder text. It has no side effects; the same
// inputs always give the same text.
type MessageTemplate struct {
	Institution string
	Tagline     string
	Currency    string
}

func DefaultMessageTemplate() MessageTemplate {
	return MessageTemplate{
		Institution: "COM-TECH ACADEMY",
		Tagline:     "Digital Skills",
		Currency:    "PKR",
	}
}

func (t MessageTemplate) Render(studentName string, remainingDue float64, daysOverdue int, course string) string {
	amount := FormatAmount(t.Currency, remainingDue)
	courseLine := ""
	if course != "" {
		courseLine = fmt.Sprintf("📚 *Course:* %s\n", course)
	}
	footer := fmt.Sprintf("*%s - %s*", t.Institution, t.Tagline)

	switch ClassifyUrgency(daysOverdue) {
	case domain.UrgencyGentle:
		return fmt.Sprintf(`🎓 *%s - Fee Reminder*

Dear %s,

This is a friendly reminder that your course fee payment is pending.

💰 *Outstanding Amount:* %s
📅 *Days Overdue:* %d days
%s
Please make your payment at your earliest convenience to continue your studies without interruption.

Thank you for your attention to this matter.

%s
For payment assistance, please contact us.`, t.Institution, studentName, amount, daysOverdue, courseLine, footer)

	case domain.UrgencyModerate:
		return fmt.Sprintf(`⚠️ *%s - Payment Reminder*

Dear %s,

Your course fee payment is now overdue and requires immediate attention.

💰 *Outstanding Amount:* %s
📅 *Days Overdue:* %d days
%s
Please settle your outstanding balance to avoid any disruption to your studies.

*Payment is required within the next 7 days.*

%s
Contact us immediately for payment arrangements.`, t.Institution, studentName, amount, daysOverdue, courseLine, footer)

	default:
		return fmt.Sprintf(`🚨 *%s - URGENT Payment Notice*

Dear %s,

Your course fee payment is significantly overdue and requires IMMEDIATE action.

💰 *Outstanding Amount:* %s
📅 *Days Overdue:* %d days
%s
⚠️ *IMPORTANT:* Your enrollment may be suspended if payment is not received within 3 days.

Please contact us IMMEDIATELY to resolve this matter.

%s
URGENT: Call us now for immediate assistance.`, t.Institution, studentName, amount, daysOverdue, courseLine, footer)
	}
}

func (t MessageTemplate) Subject(daysOverdue int) string {
	switch ClassifyUrgency(daysOverdue) {
	case domain.UrgencyGentle:
		return t.Institution + " - Fee Reminder"
	case domain.UrgencyModerate:
		return t.Institution + " - Payment Reminder"
	default:
		return t.Institution + " - URGENT Payment Notice"
	}
}
