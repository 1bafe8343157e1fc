// Package colladmin is a Go client for record collections served over the
// /items REST contract. It infers field types from backend metadata,
// validates payloads before they leave the process and routes every
// mutation through a single-flight CRUD orchestrator.
//
//	client, _ := colladmin.New("http://localhost:8080", colladmin.WithToken(token))
//	users := client.Collection("users")
//
//	schema, _ := users.Describe(ctx)
//	for _, f := range schema.Fields {
//	    fmt.Println(f.Name, f.Type, f.Widget)
//	}
//
//	if err := users.Create(ctx, colladmin.Record{"email": "a@b.com"}); err != nil {
//	    var verr *colladmin.ValidationError
//	    if errors.As(err, &verr) {
//	        fmt.Println(verr.Fields)
//	    }
//	}
//	rows, _ := users.List(ctx, colladmin.ListOptions{Sort: "email", PerPage: 20, Page: 1})
package colladmin
