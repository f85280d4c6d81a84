// Package ragdex provides a Go client for the ragdex retrieval service:
// page-level document indexing and conversational question answering over
// the indexed corpus.
//
//	client := ragdex.New("http://localhost:8080", ragdex.WithAPIKey("secret"))
//
//	_ = client.SubmitJob(ctx, ragdex.Job{
//	    Bucket:   "docs-bucket",
//	    FilePath: "reports/q3.pdf",
//	    Page:     2,
//	    TenantID: "acme",
//	})
//
//	res, _ := client.Query(ctx, ragdex.Question{
//	    Text:      "what were q3 revenues?",
//	    TenantID:  "acme",
//	    SessionID: "sess-1",
//	})
//	fmt.Println(res.Answer)
package ragdex
