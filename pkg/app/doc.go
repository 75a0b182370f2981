// Package app binds a compiled template to reactive state and keeps a host
// subtree in sync with it.
//
// An Instance owns its data cells, computed values, methods and watchers.
// It acts as the expression environment for its template, so bindings such
// as {{count}} or @click="count++" read and write the instance directly.
//
//	in, err := app.New(app.Options{
//	    Template: `<button @click="count++">{{count}}</button>`,
//	    Data:     map[string]any{"count": 0},
//	}, doc)
//	if err != nil {
//	    return err
//	}
//	if err := in.Mount("#app"); err != nil {
//	    return err
//	}
//
// # Render loop
//
// Mounting starts a render effect. Each time a cell read by the last build
// changes, the effect schedules a Pass. Passes run synchronously by
// default. With DeferredPasses they wait for Flush, and a newer trigger
// stops the pass still waiting. A pass whose build fails leaves the host
// tree as it was.
//
// # Lifecycle hooks
//
// BeforeCreate and Created run inside New. BeforeMount runs each time the
// instance moves to a new target, Mounted after the first successful pass
// and Updated after every later one. BeforeUpdate runs before a data or
// computed write takes effect. BeforeDestroy and Destroyed bracket Destroy.
package app
