package mail

import (
	"bytes"
	"html/template"
	"time"
)

const (
	productName = "AuthCodeLab"
	otpValidity = "10 minutes"
)

var (
	welcomeHTML = template.Must(template.New("welcome").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333; text-align: center;">Welcome to {{.Product}}!</h2>
  <p>Hello <strong>{{.Name}}</strong>,</p>
  <p>We're excited to have you on board! Your account has been successfully created.</p>
  <div style="background-color: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <p><strong>Account Details:</strong></p>
    <p>Email: {{.Email}}</p>
    <p>Registration Date: {{.Date}}</p>
  </div>
  <p>Best regards,<br><strong>{{.Product}} Team</strong></p>
</div>`))

	otpHTML = template.Must(template.New("otp").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333; text-align: center;">{{.Title}}</h2>
  <p>Hello <strong>{{.Name}}</strong>,</p>
  <p>{{.Intro}}</p>
  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 5px; text-align: center; margin: 20px 0;">
    <h1 style="color: #007bff; font-size: 32px; margin: 0; letter-spacing: 5px;">{{.OTP}}</h1>
  </div>
  <p><strong>This OTP will expire in {{.Validity}}.</strong></p>
  <p>If you didn't request this, please ignore this email.</p>
  <p>Best regards,<br><strong>{{.Product}} Team</strong></p>
</div>`))
)

// Welcome is sent after registration.
func Welcome(to, name string, at time.Time) Message {
	data := struct{ Product, Name, Email, Date string }{productName, name, to, at.Format("2006-01-02")}
	return Message{
		To:      to,
		Subject: "Welcome to " + productName,
		Text: "Hello " + name + ",\n\nWelcome to " + productName + "! We're excited to have you on board. " +
			"Your account has been successfully created with email id: " + to + ".\n\nBest regards,\n" + productName + " Team",
		HTML: render(welcomeHTML, data),
	}
}

// VerifyOTP carries the account verification code.
func VerifyOTP(to, name, otp string) Message {
	return otpMessage(to, name, otp,
		"Account Verification OTP - "+productName,
		"Account Verification",
		"Please use the following OTP to verify your account:",
		"Your OTP is "+otp+". Please verify your account using this OTP. This OTP will expire in "+otpValidity+".",
	)
}

// ResetOTP carries the password reset code.
func ResetOTP(to, name, otp string) Message {
	return otpMessage(to, name, otp,
		"Password Reset OTP - "+productName,
		"Password Reset",
		"Please use the following OTP to reset your password:",
		"Your OTP for password reset is "+otp+". This OTP will expire in "+otpValidity+".",
	)
}

func otpMessage(to, name, otp, subject, title, intro, text string) Message {
	data := struct{ Product, Name, Title, Intro, OTP, Validity string }{productName, name, title, intro, otp, otpValidity}
	return Message{To: to, Subject: subject, Text: text, HTML: render(otpHTML, data)}
}

// render falls back to an empty HTML part; the text part still carries the content.
func render(t *template.Template, data interface{}) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}
