package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// postCmd sends the named form fields to /admin/v1/<name> on a local server.
func postCmd(name string, args []string, fields ...string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	vals := make(map[string]*string, len(fields))
	for _, f := range fields {
		vals[f] = fs.String(f, "", f)
	}
	_ = fs.Parse(args)

	form := url.Values{}
	for k, v := range vals {
		if s := strings.TrimSpace(*v); s != "" {
			form.Set(k, s)
		}
	}

	u := strings.TrimRight(strings.TrimSpace(*baseURL), "/") + "/admin/v1/" + name
	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.PostForm(u, form)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(strings.TrimSpace(string(b)))
	if resp.StatusCode/100 != 2 {
		os.Exit(1)
	}
}
