/*
Package credential 管理 Document Intelligence 资源凭据与轮询分发。

每个凭据对应一个独立限流的服务端资源。Pool 以原子计数器轮询分发，
K 个凭据即可把总吞吐放大为单资源的 K 倍；相比随机选择，轮询在突发
扇出下的最坏不均衡度最小。

API Key 以 types.Secret 保存，日志（zap ObjectMarshaler）与 fmt 输出
都只会出现 [REDACTED]。

	pool, err := credential.NewPool([]credential.Credential{
	    credential.New("https://a.cognitiveservices.azure.com/", keyA),
	    credential.New("https://b.cognitiveservices.azure.com/", keyB),
	})
	cred := pool.Acquire()
*/
package credential
