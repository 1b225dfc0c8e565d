package service

import "fmt"

func confirmationEmailTemplate(confirmURL, tempPassword, appName string) (string, string) {
	subject := fmt.Sprintf("Confirm your %s account", appName)

	credentials := ""
	if tempPassword != "" {
		credentials = fmt.Sprintf(`
Your temporary password is: %s
Change it after your first login.
`, tempPassword)
	}

	body := fmt.Sprintf(`Welcome to %s!

Confirm your email address by clicking this link:
%s
%s
If you didn't create an account, ignore this email.

Best,
The %s Team`, appName, confirmURL, credentials, appName)

	return subject, body
}
