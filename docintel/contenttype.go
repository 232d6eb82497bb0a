package docintel

import "path/filepath"

// ContentTypeForPath 按扩展名（区分大小写）推断上传文件的 Content-Type
func ContentTypeForPath(path string) string {
	switch extension(path) {
	case "pdf":
		return "application/pdf"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "tiff", "tif":
		return "image/tiff"
	case "bmp":
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}

// extension 返回不带点的扩展名；".pdf" 这类隐藏文件视为没有扩展名
func extension(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" || ext == base {
		return ""
	}
	return ext[1:]
}
