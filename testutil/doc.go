/*
Package testutil 提供 docflow 测试的共享工具和辅助函数。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 断言工具: AssertJSONEqual / AssertErrorCode / AssertNotContains
  - 异步断言: AssertEventuallyTrue / WaitFor
  - 数据工具: MustJSON / WriteTempFile

# 子包

  - testutil/mocks: DocIntelServer，可编排的 Document Intelligence
    提交/轮询模拟服务，记录每次提交并统计并发操作峰值

# 使用示例

	srv := mocks.NewDocIntelServer()
	defer srv.Close()
	ctx := testutil.TestContext(t)
*/
package testutil
