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
	<title>Loopr Privacy Policy</title>
</head>
<body>
	<h1>Privacy Policy</h1>
	<p>Loopr stores the golf profile you enter: your name, handedness, preferred units, swing tendency, handicap and club distances.</p>
	<p>If you add a profile picture it is stored in our image storage and shown on your dashboard.</p>
	<p>Rounds you start record the course, tee and holes you chose. We do not sell your data.</p>
	<p>Deleting your profile in the app removes the stored profile record.</p>
</body>
</html>
`
	fmt.Fprint(w, html)
}
