package apiclient

import (
	"bytes"
	"io"
	"mime/multipart"
)

// FormFile is one file part of a multipart upload.
type FormFile struct {
	Field    string
	Filename string
	Content  io.Reader
}

// Multipart is a request body sent as multipart/form-data.
type Multipart struct {
	Fields map[string]string
	Files  []FormFile
}

func (m *Multipart) encode() (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	for name, value := range m.Fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	for _, file := range m.Files {
		part, err := writer.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf, writer.FormDataContentType(), nil
}
