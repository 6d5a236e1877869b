package newznab

import (
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// feed is a parsed RSS or Atom document.
type feed struct {
	entries []rawEntry
	// errCode and errDescription are set when the indexer answered with a
	// newznab <error code="" description=""/> document.
	errCode        string
	errDescription string
}

type rawEntry struct {
	fields RawFields
	attrs  map[string]string
}

type textElement struct {
	Text  string `xml:",chardata"`
	Inner string `xml:",innerxml"`
}

func newDecoder(r io.Reader) *xml.Decoder {
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel
	d.Strict = false
	d.Entity = xml.HTMLEntity
	return d
}

// parseFeed walks the document and collects <item> (RSS) or <entry> (Atom)
// elements wherever they appear.
func parseFeed(r io.Reader) (*feed, error) {
	d := newDecoder(r)
	f := &feed{}
	root := ""

	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding feed: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if root == "" {
			root = start.Name.Local
			switch root {
			case "error":
				f.errCode = attr(start, "code")
				f.errDescription = attr(start, "description")
				return f, nil
			case "rss", "feed", "RDF":
			default:
				return nil, fmt.Errorf("unrecognized feed root <%s>", root)
			}
			continue
		}

		if start.Name.Local == "item" || start.Name.Local == "entry" {
			entry, err := parseEntry(d, start)
			if err != nil {
				return nil, err
			}
			f.entries = append(f.entries, entry)
		}
	}

	if root == "" {
		return nil, errors.New("empty feed document")
	}
	return f, nil
}

func parseEntry(d *xml.Decoder, item xml.StartElement) (rawEntry, error) {
	entry := rawEntry{attrs: make(map[string]string)}

	for {
		tok, err := d.Token()
		if err != nil {
			return entry, fmt.Errorf("decoding <%s>: %w", item.Name.Local, err)
		}

		switch el := tok.(type) {
		case xml.EndElement:
			if el.Name.Local == item.Name.Local {
				return entry, nil
			}

		case xml.StartElement:
			name := el.Name.Local
			switch {
			case name == "attr":
				if key := attr(el, "name"); key != "" {
					entry.attrs[key] = attr(el, "value")
				}
				if err := d.Skip(); err != nil {
					return entry, err
				}

			case name == "enclosure":
				entry.fields.Add(FieldEnclosureURL, attr(el, "url"))
				if length := attr(el, "length"); length != "" {
					entry.fields.Add(FieldEnclosureLength, length)
				}
				if typ := attr(el, "type"); typ != "" {
					entry.fields.Add(FieldEnclosureType, typ)
				}
				if err := d.Skip(); err != nil {
					return entry, err
				}

			case name == "link" && attr(el, "href") != "":
				// Atom links carry the target in href.
				key := FieldLink
				if rel := attr(el, "rel"); rel == "enclosure" {
					key = FieldEnclosureURL
				} else if rel != "" && rel != "alternate" {
					key = "link_" + rel
				}
				entry.fields.Add(key, attr(el, "href"))
				if err := d.Skip(); err != nil {
					return entry, err
				}

			default:
				var text textElement
				if err := d.DecodeElement(&text, &el); err != nil {
					return entry, fmt.Errorf("decoding <%s>: %w", name, err)
				}
				value := strings.TrimSpace(text.Text)
				if value == "" {
					value = strings.TrimSpace(text.Inner)
				}
				entry.fields.Add(name, value)
			}
		}
	}
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// unescape undoes the double escaping some indexers apply to titles and links.
func unescape(title string) string {
	if strings.Contains(title, "&") {
		return html.UnescapeString(title)
	}
	return title
}
