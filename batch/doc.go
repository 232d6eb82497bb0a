/*
Package batch 并发分析一批文档。

# 概述

Dispatcher.Run 为每个输入文档启动一个 goroutine（errgroup 统一等待），
按输入顺序从凭据池轮询取得凭据：第 i 个文档固定使用第 i mod K 个凭据。
所有 goroutine 共用一个容量为 MaxRPS × K 的准入闸门，闸门之后由
docintel.Driver 完成提交与轮询。

# 结果

返回切片与输入等长，第 i 个 Outcome 对应第 i 个输入。单个文档的失败
（包括任务内 panic，归类为 TASK_FAULTED）只写入自己的位置。批次级错误
（参数非法、ctx 取消）直接作为 Run 的 error 返回。
*/
package batch
