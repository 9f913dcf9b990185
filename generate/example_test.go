package generate_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/randalmurphal/genstream/generate"
)

// fakeService answers like a local generate endpoint.
func fakeService() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generate.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Model == "missing" {
			http.Error(w, `{"error":"model 'missing' not found"}`, http.StatusNotFound)
			return
		}
		if !req.Stream {
			fmt.Fprint(w, `{"response":"The sky is blue.","done":true}`)
			return
		}
		for _, word := range []string{"The", " sky", " is", " blue."} {
			fmt.Fprintf(w, "{\"response\":%q,\"done\":false}\n", word)
		}
		fmt.Fprintln(w, `{"response":"","done":true}`)
	}))
}

func ExampleClient_Generate() {
	srv := fakeService()
	defer srv.Close()

	client, err := generate.New(srv.URL+"/api/generate", "llama3.2")
	if err != nil {
		panic(err)
	}

	resp, err := client.Generate(context.Background(), "Why is the sky blue?")
	if err != nil {
		panic(err)
	}
	fmt.Println(resp.Response)
	// Output: The sky is blue.
}

func ExampleSession_All() {
	srv := fakeService()
	defer srv.Close()

	client, err := generate.New(srv.URL+"/api/generate", "llama3.2")
	if err != nil {
		panic(err)
	}

	for frag, err := range client.Stream(context.Background(), "Why is the sky blue?").All() {
		if err != nil {
			panic(err)
		}
		fmt.Printf("%q done=%v\n", frag.Response, frag.Done)
	}
	// Output:
	// "The" done=false
	// " sky" done=false
	// " is" done=false
	// " blue." done=false
	// "" done=true
}

func ExampleCollect() {
	srv := fakeService()
	defer srv.Close()

	client, _ := generate.New(srv.URL+"/api/generate", "llama3.2")

	resp, err := generate.Collect(client.Stream(context.Background(), "Why is the sky blue?").All())
	if err != nil {
		panic(err)
	}
	fmt.Println(resp.Response)
	// Output: The sky is blue.
}

func ExampleError() {
	srv := fakeService()
	defer srv.Close()

	client, _ := generate.New(srv.URL+"/api/generate", "missing")

	_, err := client.Generate(context.Background(), "hi")

	var e *generate.Error
	if errors.As(err, &e) && errors.Is(err, generate.ErrService) {
		fmt.Println(e.StatusCode, e.Body)
	}
	// Output: 404 {"error":"model 'missing' not found"}
}
