package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/desertthunder/pawalert/internal/models"
)

// Message is a rendered notification.
type Message struct {
	Subject string
	HTML    string
}

var newListingHTML = template.Must(template.New("new_listing_match").Parse(`<h1>New Pet Available!</h1>
<p>Hello {{.Name}},</p>
<p>A new pet matching your preferences is now available for adoption:</p>
<p><strong>{{.Data.PetName}}</strong> - {{.Data.PetBreed}}, {{.Data.PetAge}}</p>
<p>Check out the listing on our platform!</p>
<p>Thank you for using our service!</p>
`))

// Render produces the subject and HTML body for kind.
func Render(kind TemplateKind, to models.Contact, data TemplateData) (Message, error) {
	switch kind {
	case NewListingMatch:
		var buf bytes.Buffer
		name := to.Name
		if name == "" {
			name = "there"
		}
		err := newListingHTML.Execute(&buf, struct {
			Name string
			Data TemplateData
		}{Name: name, Data: data})
		if err != nil {
			return Message{}, fmt.Errorf("failed to render %s: %w", kind, err)
		}
		return Message{
			Subject: "New Pet Available for Adoption: " + data.PetName,
			HTML:    buf.String(),
		}, nil
	default:
		return Message{}, fmt.Errorf("unknown template kind %q", kind)
	}
}
