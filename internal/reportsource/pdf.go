package reportsource

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

func (p *Parser) parsePDF(body []byte) (*Report, error) {
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %v", ErrUnreadable, err)
	}
	textReader, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("%w: extract pdf text: %v", ErrUnreadable, err)
	}
	text, err := io.ReadAll(textReader)
	if err != nil {
		return nil, fmt.Errorf("%w: read pdf text: %v", ErrUnreadable, err)
	}
	return p.ParseText(string(text)), nil
}
