//go:build ocr

package docparse

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// recognizeImage runs Tesseract over one encoded image and returns the
// recognized text. A fresh client per image keeps the call goroutine safe.
func recognizeImage(data []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("docparse: set ocr image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("docparse: ocr: %w", err)
	}
	return strings.TrimSpace(text), nil
}
