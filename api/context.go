package api

import (
	"context"
)

type keyType string

const uploadsKey keyType = "uploads"

// uploadedFiles maps a form field name to the hosted URLs of its files, in
// upload order.
type uploadedFiles map[string][]string

// urls flattens every hosted URL in field order.
func (u uploadedFiles) urls(fields []uploadField) []string {
	var out []string
	for _, f := range fields {
		out = append(out, u[f.name]...)
	}
	return out
}

func ctxWithUploads(ctx context.Context, uploads uploadedFiles) context.Context {
	return context.WithValue(ctx, uploadsKey, uploads)
}

// ctxGetUploads returns the files pushed by the upload middleware, or an empty
// map when the request carried none.
func ctxGetUploads(ctx context.Context) uploadedFiles {
	if uploads, ok := ctx.Value(uploadsKey).(uploadedFiles); ok {
		return uploads
	}
	return uploadedFiles{}
}
