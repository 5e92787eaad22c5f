package common

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/dslipak/pdf"
)

// ExtractRowsFromPDFReader returns the text rows of every page, grouped per
// page in page order.
func ExtractRowsFromPDFReader(reader io.Reader) (pages [][]string, err error) {
	// the pdf package panics on some malformed object streams
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("malformed PDF: %v", rec)
		}
	}()

	// Ensure we have an io.ReaderAt and know the size
	var rAt io.ReaderAt
	var size int64

	switch v := reader.(type) {
	case io.ReaderAt:
		rAt = v
		seeker, ok := reader.(io.Seeker)
		if !ok {
			return nil, errors.New("reader is io.ReaderAt but not io.Seeker, cannot determine size")
		}
		cur, _ := seeker.Seek(0, io.SeekCurrent)
		end, err := seeker.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, err
		}
		seeker.Seek(cur, io.SeekStart)
		size = end
	default:
		buf := new(bytes.Buffer)
		if _, err := buf.ReadFrom(reader); err != nil {
			return nil, err
		}
		b := buf.Bytes()
		rAt = bytes.NewReader(b)
		size = int64(len(b))
	}

	r, err := pdf.NewReader(rAt, size)
	if err != nil {
		return nil, err
	}

	numPages := r.NumPage()
	pages = make([][]string, 0, numPages)

	for no := 1; no <= numPages; no++ {
		page := r.Page(no)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			log.Printf("Warning: error getting text from page %d: %v", no, err)
			continue
		}

		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			var builder strings.Builder
			for i, text := range row.Content {
				builder.WriteString(text.S)
				if i < len(row.Content)-1 {
					builder.WriteByte(' ')
				}
			}
			if builder.Len() > 0 {
				lines = append(lines, builder.String())
			}
		}
		pages = append(pages, lines)
	}

	return pages, nil
}

// ExtractTextFromPDFReader flattens a PDF into one string: rows joined by
// newlines, every page terminated by a newline, pages in order.
func ExtractTextFromPDFReader(reader io.Reader) (string, error) {
	pages, err := ExtractRowsFromPDFReader(reader)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, lines := range pages {
		for _, line := range lines {
			text.WriteString(line)
			text.WriteByte('\n')
		}
	}
	return text.String(), nil
}

func ExtractTextFromPDF(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return ExtractTextFromPDFReader(file)
}
