package docintel

import "path/filepath"

// ItemKind 文档来源类型
type ItemKind int

const (
	// KindURL 服务端可直接访问的文档地址
	KindURL ItemKind = iota
	// KindFile 本地文件，整体读入内存后上传
	KindFile
)

func (k ItemKind) String() string {
	switch k {
	case KindURL:
		return "url"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Item 批次中的一个文档引用
type Item struct {
	Kind   ItemKind `json:"kind"`
	Source string   `json:"source"`
}

// URLItem 构造远程文档引用
func URLItem(url string) Item {
	return Item{Kind: KindURL, Source: url}
}

// FileItem 构造本地文件引用
func FileItem(path string) Item {
	return Item{Kind: KindFile, Source: path}
}

// URLItems 批量构造远程文档引用
func URLItems(urls []string) []Item {
	items := make([]Item, len(urls))
	for i, u := range urls {
		items[i] = URLItem(u)
	}
	return items
}

// FileItems 批量构造本地文件引用
func FileItems(paths []string) []Item {
	items := make([]Item, len(paths))
	for i, p := range paths {
		items[i] = FileItem(p)
	}
	return items
}

// displayName 日志中展示的名称：URL 原样，文件只取文件名
func (it Item) displayName() string {
	if it.Kind == KindFile {
		return filepath.Base(it.Source)
	}
	return it.Source
}
