package services

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"
)

// Notifier delivers operator notifications over SMTP. Without SMTP settings
// or a recipient it runs in dev mode and logs the message instead.
type Notifier struct {
	host      string
	port      string
	user      string
	pass      string
	from      string
	recipient string
	devMode   bool
}

func NewNotifier(host, port, user, pass, from, recipient string) *Notifier {
	devMode := host == "" || user == "" || recipient == ""
	if devMode {
		log.Println("⚠ Notifier running in DEV MODE (logging to console)")
	}
	return &Notifier{
		host:      host,
		port:      port,
		user:      user,
		pass:      pass,
		from:      from,
		recipient: recipient,
		devMode:   devMode,
	}
}

// NotifySignup tells the operator about a new account. Failures are logged
// and swallowed; callers must not depend on delivery.
func (n *Notifier) NotifySignup(name, email string) {
	subject := "New User Signup Notification"
	body := fmt.Sprintf(
		"A new user has signed up for your application:\r\n\r\nName: %s\r\nEmail: %s\r\nDate: %s\r\n",
		name, email, time.Now().Format(time.RFC1123),
	)

	if err := n.send(subject, body); err != nil {
		log.Printf("Failed to send signup notification for %s: %v", email, err)
	}
}

func (n *Notifier) send(subject, body string) error {
	if n.devMode {
		log.Printf("[DEV NOTIFY] to=%s subject=%q\n%s", n.recipient, subject, body)
		return nil
	}

	msg := strings.Join([]string{
		"From: " + n.from,
		"To: " + n.recipient,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	auth := smtp.PlainAuth("", n.user, n.pass, n.host)
	return smtp.SendMail(n.host+":"+n.port, auth, n.from, []string{n.recipient}, []byte(msg))
}
