package twilio

import (
	"encoding/xml"

	"paden/internal/domain"
)

// TwiML is the XML body a messaging webhook answers with. An empty Response
// acknowledges the inbound message without replying (the async path).
type twimlResponse struct {
	XMLName xml.Name      `xml:"Response"`
	Message *twimlMessage `xml:"Message,omitempty"`
}

type twimlMessage struct {
	Body  string `xml:"Body"`
	Media string `xml:"Media,omitempty"`
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>`

// MarshalTwiML renders a reply as a TwiML document.
func MarshalTwiML(r domain.Reply) ([]byte, error) {
	doc := twimlResponse{}
	if r.Text != "" {
		doc.Message = &twimlMessage{Body: r.Text, Media: r.MediaURL}
	}
	b, err := xml.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return append([]byte(xmlHeader), b...), nil
}

// AckTwiML is the empty acknowledgement document.
func AckTwiML() []byte {
	b, _ := MarshalTwiML(domain.Reply{})
	return b
}
