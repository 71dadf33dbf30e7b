package domain

import "context"

// Guardian is the contact a reminder is delivered to.
type Guardian struct {
	StudentName string
	Phone       string
	Email       string
}

func GuardianOf(s *Student) Guardian {
	g := Guardian{StudentName: s.StudentName}
	if s.ParentPhone != nil {
		g.Phone = *s.ParentPhone
	}
	if s.ParentEmail != nil {
		g.Email = *s.ParentEmail
	}
	return g
}

func GuardianOfOverdue(o OverduePayment) Guardian {
	return Guardian{StudentName: o.StudentName, Phone: o.ParentPhone, Email: o.ParentEmail}
}

// SenderRepo pushes a rendered reminder through an external channel.
type SenderRepo interface {
	Deliver(ctx context.Context, via Channel, to Guardian, subject, body string) error
	Available(via Channel) bool
}
