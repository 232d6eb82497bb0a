// Package tlsutil 提供集中式 TLS 与连接池配置，
// 为访问 Document Intelligence 的共享 HTTP 客户端提供安全加固的传输层（TLS 1.2+，仅 AEAD 密码套件）。
package tlsutil
