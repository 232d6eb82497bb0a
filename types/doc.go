// Copyright (c) DocFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 docflow 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 credential、docintel、batch
以及根包 docflow 提供统一的错误与敏感值契约。

# 核心类型

  - Error / ErrorCode：结构化错误体系，含 HTTP 状态码、Retryable、Path、Endpoint
  - Secret：敏感字符串包装，所有展示路径输出 [REDACTED]

# 错误码

批次级（派发前同步返回）：INVALID_INPUT、CANCELLED。
单条文档级（写入结果对应位置）：FILE_READ_FAILED、SUBMISSION_FAILED、
PROTOCOL_VIOLATION、POLL_FAILED、ANALYSIS_FAILED、TASK_FAULTED。

# 主要能力

  - 错误工具链：AsError / GetErrorCode / IsErrorCode / IsRetryable
  - 重试提示：RetryableStatus（429 与 5xx），客户端本身不重试
  - 明文只能通过 Secret.Expose 取得
*/
package types
