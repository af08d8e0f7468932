package tilevector

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// XMLDocument is a well-formed XML document kept in raw form together with
// its root element. Formats decode it into their own types.
type XMLDocument struct {
	// Root is the document's root element.
	Root xml.StartElement

	data []byte
}

// ParseXML checks that text is a well-formed XML document and returns it.
func ParseXML(text string) (*XMLDocument, error) {
	return parseXMLBytes([]byte(text))
}

func parseXMLBytes(data []byte) (*XMLDocument, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var root *xml.StartElement
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok && root == nil {
			el := se.Copy()
			root = &el
		}
	}

	if root == nil {
		return nil, errors.New("parse xml: document has no root element")
	}

	return &XMLDocument{Root: *root, data: data}, nil
}

// Decode unmarshals the document into v using encoding/xml.
func (d *XMLDocument) Decode(v any) error {
	if d == nil {
		return ErrNoDocument
	}
	return xml.Unmarshal(d.data, v)
}

// Bytes returns the raw document.
func (d *XMLDocument) Bytes() []byte {
	if d == nil {
		return nil
	}
	return d.data
}
