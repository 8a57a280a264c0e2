package middleware

import (
	"net/http"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/labstack/echo/v4"
)

type zstdResponseWriter struct {
	http.ResponseWriter
	encoder *zstd.Encoder
}

func (w *zstdResponseWriter) Write(b []byte) (int, error) {
	return w.encoder.Write(b)
}

// Zstd compresses responses for clients that explicitly accept zstd.
func Zstd() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !strings.Contains(c.Request().Header.Get(echo.HeaderAcceptEncoding), "zstd") {
				return next(c)
			}

			res := c.Response()
			encoder, err := zstd.NewWriter(res.Writer, zstd.WithEncoderConcurrency(1))
			if err != nil {
				return err
			}

			res.Header().Set(echo.HeaderContentEncoding, "zstd")
			res.Header().Add(echo.HeaderVary, echo.HeaderAcceptEncoding)
			res.Header().Del(echo.HeaderContentLength)

			orig := res.Writer
			res.Writer = &zstdResponseWriter{ResponseWriter: orig, encoder: encoder}
			defer func() {
				_ = encoder.Close()
				res.Writer = orig
			}()

			// Errors are rendered here so the body goes through the encoder.
			if err := next(c); err != nil {
				c.Error(err)
			}
			return nil
		}
	}
}
