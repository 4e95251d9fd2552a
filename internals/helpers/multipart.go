// file: internals/helpers/multipart.go
package helper

import "mime/multipart"

// Accepted multipart field names for uploaded files, in preference order.
var DefaultFileFields = []string{"files", "files[]", "file"}

// CollectUploadFiles gathers every named file under the given field names.
// Parts without a filename are ignored. Order follows fields, then form order.
func CollectUploadFiles(form *multipart.Form, fields ...string) []*multipart.FileHeader {
	if form == nil || form.File == nil {
		return nil
	}
	if len(fields) == 0 {
		fields = DefaultFileFields
	}
	var out []*multipart.FileHeader
	for _, key := range fields {
		for _, fh := range form.File[key] {
			if fh != nil && fh.Filename != "" {
				out = append(out, fh)
			}
		}
	}
	return out
}
