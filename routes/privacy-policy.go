package routes

import (
	"fmt"
	"net/http"
)

// PrivacyPolicyHandler serves the Privacy Policy content
func PrivacyPolicyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	html := `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>LuvLang Privacy Policy</title>
</head>
<body>
	<h1>Privacy Policy</h1>
	<p>LuvLang stores the profile details, photos and voice intro you choose to share so other members can find you.</p>
	<p>Photos and recordings are kept in your own storage folder and removed when you delete them from your profile.</p>
	<p>Your email address is never shown on your public profile.</p>
	<p>Contact us at <a href="mailto:privacy@luvlang.org">privacy@luvlang.org</a> for questions or to request deletion of your data.</p>
</body>
</html>
`
	fmt.Fprint(w, html)
}
