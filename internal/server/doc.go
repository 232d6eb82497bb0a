/*
包 server 提供 Prometheus 指标端点的 HTTP 服务器生命周期管理。

# 概述

CLI 在批次运行期间通过 Manager 暴露 /metrics 与 /healthz，
批次结束后优雅关闭。Manager 封装 net/http.Server，统一管理监听、
服务、关闭与错误传播流程。

# 核心类型

  - Manager：持有 http.Server、net.Listener 与异步错误通道，
    提供 Start/Shutdown/Errors 等生命周期方法。
  - Config：监听地址、读写超时与优雅关闭超时。
  - NewMetricsHandler：基于 promhttp 的指标与健康检查路由。
*/
package server
