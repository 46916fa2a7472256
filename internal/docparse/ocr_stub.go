//go:build !ocr

package docparse

func recognizeImage([]byte) (string, error) {
	return "", ErrOCRNotEnabled
}
