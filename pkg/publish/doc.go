// Package publish writes rendered snapshots to a file tree or an S3 bucket.
//
//	store, err := publish.Open(ctx, "s3://my-bucket/snapshots/")
//	if err != nil {
//	    return err
//	}
//	err = store.Put(ctx, "index.html", html, publish.ContentTypeHTML)
//
// Open understands s3://bucket/prefix, file:///dir and plain directory
// paths. S3 credentials and region come from the standard AWS_* environment
// variables.
package publish
