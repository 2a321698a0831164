package messaging

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/localnerve/voternet/internal/models"
)

// Message types. They also name the sent markers kept for each recipient.
const (
	MsgVoterIDPending = "voterid_pending"
	MsgVoterIDAdded   = "voterid_added"
	MsgSignup         = "signup"
	MsgInvite         = "invite"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = map[string]*template.Template{}

func init() {
	for _, name := range []string{MsgVoterIDPending, MsgVoterIDAdded, MsgSignup, MsgInvite} {
		templates[name] = template.Must(template.ParseFS(templateFS, "templates/"+name+".tmpl"))
	}
}

// Notice is the data available to message templates.
type Notice struct {
	Person models.Person
	Place  *models.Place
	Booth  *models.Place
	Info   *models.VoterIDInfo
	URL    string
}

// Render produces the subject and body of message type name.
func Render(name string, n Notice) (subject, body string, err error) {
	t, ok := templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown message type %q", name)
	}
	var s, b bytes.Buffer
	if err := t.ExecuteTemplate(&s, "subject", n); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	if err := t.ExecuteTemplate(&b, "body", n); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", name, err)
	}
	return strings.TrimSpace(s.String()), strings.TrimLeft(b.String(), "\n"), nil
}

// Compose renders message type name into an Email to the person in n.
func Compose(name string, n Notice) (Email, error) {
	subject, body, err := Render(name, n)
	if err != nil {
		return Email{}, err
	}
	return Email{To: []string{n.Person.Email}, Subject: subject, Body: body}, nil
}
