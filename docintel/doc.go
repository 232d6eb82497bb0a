// Package docintel 实现 Azure Document Intelligence 的长时操作（LRO）协议。
//
// 一次分析分两步：向 documentModels/{model}:analyze 提交文档，服务端返回
// operation-location；随后按固定间隔 GET 该地址，直到状态变为 succeeded 或 failed。
// analyzeResult 以 json.RawMessage 原样返回，本包不解析其结构。
//
// 请求构造（BuildAnalyzeURL、ParseOutputFormat、ContentTypeForPath）与驱动
// （Driver.Analyze）都不持有跨请求状态，可在多个 goroutine 间共享。
package docintel
