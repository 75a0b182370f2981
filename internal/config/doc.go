// Package config provides configuration parsing for stencil projects.
//
// The configuration is stored in stencil.json or stencil.yaml at the
// project root. This package handles loading, saving, and validating it.
// Command line flags override file values.
//
// # Configuration File Structure
//
//	{
//	  "name": "counter",
//	  "template": "counter.html",
//	  "data": "counter.json",
//	  "compiler": {
//	    "delims": ["{{", "}}"],
//	    "eventPrefix": "@",
//	    "dynamicPrefix": ":"
//	  },
//	  "reconcile": {
//	    "profile": "full"
//	  },
//	  "render": {
//	    "pretty": true,
//	    "publish": "s3://my-bucket/snapshots/"
//	  },
//	  "serve": {
//	    "port": 3000,
//	    "metrics": true
//	  },
//	  "log": {
//	    "level": "debug",
//	    "format": "json"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Template:", cfg.TemplatePath())
package config
