// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/tidwall/gjson"
)

// Upload sends one file to POST /upload and returns the stored URL.
// contentType may be empty, in which case it is sniffed from the content.
func (c *Client) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, Result) {
	content, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		c.logger.Warn("reading upload", "filename", filename, "error", err)
		return "", transportFailure()
	}
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err == nil {
		_, err = part.Write(content)
	}
	if err == nil {
		err = mw.Close()
	}
	if err != nil {
		c.logger.Error("building upload body", "filename", filename, "error", err)
		return "", transportFailure()
	}

	res := c.do(ctx, http.MethodPost, "/upload", buf, mw.FormDataContentType())
	if !res.Success {
		return "", res
	}

	for _, key := range []string{"url", "file_url", "data.url"} {
		if v := gjson.GetBytes(res.Data, key); v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
			return v.Str, res
		}
	}

	return "", Result{Success: false, Message: "Upload response did not include a URL", Status: res.Status, Kind: KindServer}
}
