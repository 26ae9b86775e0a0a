package mailer

import "fmt"

// NewContributionEmail notifies a faculty's marketing coordinator that a
// student submitted a contribution.
func NewContributionEmail(coordinatorName, studentName, title, contributionID, frontendURL string) Email {
	link := fmt.Sprintf("%s/contributions/%s", frontendURL, contributionID)
	html := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>%s has submitted a new contribution: <strong>%s</strong>.</p>
		<p>Please review and comment within 14 days.</p>
		<p><a href="%s">Open the contribution</a></p>`,
		coordinatorName, studentName, title, link)
	return Email{
		Subject: fmt.Sprintf("New contribution: %s", title),
		HTML:    html,
	}
}

// NewCommentEmail notifies a student that feedback was posted on their
// contribution.
func NewCommentEmail(studentName, commenterName, title, contributionID, frontendURL string) Email {
	link := fmt.Sprintf("%s/contributions/%s", frontendURL, contributionID)
	html := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>%s commented on your contribution <strong>%s</strong>.</p>
		<p><a href="%s">Read the feedback</a></p>`,
		studentName, commenterName, title, link)
	return Email{
		Subject: fmt.Sprintf("New comment on %s", title),
		HTML:    html,
	}
}

// StatusUpdateEmail notifies a student that their contribution was selected
// or rejected.
func StatusUpdateEmail(studentName, title, status, contributionID, frontendURL string) Email {
	link := fmt.Sprintf("%s/contributions/%s", frontendURL, contributionID)
	html := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your contribution <strong>%s</strong> has been <strong>%s</strong>.</p>
		<p><a href="%s">View the contribution</a></p>`,
		studentName, title, status, link)
	return Email{
		Subject: fmt.Sprintf("Your contribution was %s", status),
		HTML:    html,
	}
}
