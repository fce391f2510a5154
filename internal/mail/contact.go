package mail

import "fmt"

// Contact is what a visitor submitted through the contact form.
type Contact struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

const (
	AcknowledgementSubject = "Message Received"
	RelaySubject           = "Message from your blog website."
)

// ContactMessages returns the two emails a contact submission produces:
// the acknowledgement to the visitor, then the relay to owner.
func ContactMessages(owner string, c Contact) []Message {
	return []Message{
		{
			To:      c.Email,
			Subject: AcknowledgementSubject,
			Body: fmt.Sprintf("Hey %s, received your message.\n"+
				"It was lovely, will catch you up on your phone or email.", c.Name),
		},
		{
			To:      owner,
			Subject: RelaySubject,
			Body: fmt.Sprintf("%s contacted you to say..\n  \n%s\n  \n"+
				"You can contact them on his email %s or his phone %s",
				c.Name, c.Message, c.Email, c.Phone),
		},
	}
}
