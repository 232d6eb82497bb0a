// Package docflow is a concurrent batch client for Azure Document Intelligence.
//
// A batch of document references (remote URLs or local files) is spread
// round-robin over one or more resource credentials. Each document is
// submitted to the analyze endpoint and its long-running operation is polled
// until it reaches a terminal state. Results come back in input order, one
// Outcome per input, and a failure of one document never affects another.
//
// Usage:
//
//	import "github.com/BaSui01/docflow"
//
//	client, err := docflow.NewClient([]credential.Credential{
//	    credential.New("https://res-a.cognitiveservices.azure.com/", keyA),
//	    credential.New("https://res-b.cognitiveservices.azure.com/", keyB),
//	}, true)
//	outcomes, err := client.ProcessBatchFromURLs(ctx, "prebuilt-layout", urls,
//	    docflow.WithOutputFormat("markdown"),
//	    docflow.WithFeatures("ocrHighResolution"),
//	    docflow.WithMaxRPS(10))
//
// At most MaxRPS × len(credentials) operations are in flight at once.
// API keys are held as types.Secret and never appear in logs, error
// strings or serialized outcomes.
package docflow
