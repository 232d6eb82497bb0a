/*
包 metrics 提供基于 Prometheus 的文档分析指标采集能力。

# 概述

Collector 通过 promauto 注册到默认 Registry，并实现 batch.Observer，
直接挂到派发器上即可采集。所有指标按 namespace 隔离。

# 主要能力

  - 提交指标：提交次数与耗时，按 endpoint/status 分组，
    状态码归类为 2xx/3xx/429/4xx/5xx，传输失败记为 error。
  - 轮询指标：按 endpoint 与服务端返回的 status 计数。
  - 状态迁移：submitting/polling/succeeded/failed 之间的迁移计数。
  - 结果与在途：按错误码统计的结果数、持有准入许可的在途数 Gauge。
  - 批次指标：文档总数与批次耗时。
*/
package metrics
