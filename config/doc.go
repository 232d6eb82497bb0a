// Package config 提供 DocFlow 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → 环境变量（DOCFLOW_ 前缀）的顺序叠加。
// 凭据可写在文件中，也可通过 api_key_env 引用环境变量，
// 或用 DOCFLOW_ENDPOINTS / DOCFLOW_API_KEYS 整体注入。
// 密钥以 types.Secret 保存，打印与序列化时始终脱敏。
package config
