package discovery

import "testing"

func TestNode_String(t *testing.T) {
	n := &Node{Instance: "garage-north", ID: "abc", IP: "192.168.1.190", Port: 80}
	want := "Garage node garage-north (abc) at 192.168.1.190:80"
	if n.String() != want {
		t.Errorf("String() = %q, want %q", n.String(), want)
	}
}

func TestNode_Addr(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		want string
	}{
		{"ipv4", &Node{IP: "192.168.1.190", Port: 80}, "192.168.1.190:80"},
		{"custom port", &Node{IP: "10.0.0.5", Port: 8080}, "10.0.0.5:8080"},
		{"ipv6", &Node{IP: "fe80::1", Port: 80}, "[fe80::1]:80"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.Addr(); got != tt.want {
				t.Errorf("Addr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNode_GetMetadata_NilMap(t *testing.T) {
	n := &Node{}
	if got := n.GetMetadata("anything"); got != "" {
		t.Errorf("GetMetadata() with nil map = %q", got)
	}
	if n.StatusPath() != "/status" || n.SetPath() != "/set" {
		t.Errorf("default paths = %q, %q", n.StatusPath(), n.SetPath())
	}
}
