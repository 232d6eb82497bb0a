/*
Package main 提供 DocFlow 命令行程序入口。

# 概述

cmd/docflow 读取 YAML 配置与 DOCFLOW_ 前缀的环境变量，把命令行给出的
URL 与本地文件作为一个批次提交到 Azure Document Intelligence，
并按输入顺序以 JSON 数组输出每个文档的结果。

# 主要能力

  - 子命令：analyze（批量分析）、version、help
  - 结构化日志（zap）写 stderr，结果写 stdout 或 --output 指定的文件
  - 可选 Prometheus 指标端点（/metrics、/healthz）与 OTLP 链路追踪
  - SIGINT/SIGTERM 取消整个批次
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
