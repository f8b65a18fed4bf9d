package auth

type v2Request struct {
	Auth v2Auth `json:"auth"`
}

type v2Auth struct {
	PasswordCredentials v2Credentials `json:"passwordCredentials"`
	TenantName          string        `json:"tenantName"`
}

type v2Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type v2Reply struct {
	Access struct {
		Token struct {
			ID string `json:"id"`
		} `json:"token"`
	} `json:"access"`
}

type v3Request struct {
	Auth v3Auth `json:"auth"`
}

type v3Auth struct {
	Identity v3Identity `json:"identity"`
	Scope    v3Scope    `json:"scope"`
}

type v3Identity struct {
	Methods  []string   `json:"methods"`
	Password v3Password `json:"password"`
}

type v3Password struct {
	User v3User `json:"user"`
}

type v3User struct {
	Name     string `json:"name"`
	Domain   v3Name `json:"domain"`
	Password string `json:"password"`
}

type v3Scope struct {
	Project v3Project `json:"project"`
}

type v3Project struct {
	Domain v3Name `json:"domain"`
	Name   string `json:"name"`
}

type v3Name struct {
	Name string `json:"name"`
}

func (k *Keystone) envelope(variant Variant) interface{} {
	if variant == V2 {
		return v2Request{Auth: v2Auth{
			PasswordCredentials: v2Credentials{Username: k.cfg.Username, Password: k.cfg.Password},
			TenantName:          k.cfg.Tenant,
		}}
	}

	return v3Request{Auth: v3Auth{
		Identity: v3Identity{
			Methods: []string{"password"},
			Password: v3Password{User: v3User{
				Name:     k.cfg.Username,
				Domain:   v3Name{Name: k.cfg.Domain},
				Password: k.cfg.Password,
			}},
		},
		Scope: v3Scope{Project: v3Project{
			Domain: v3Name{Name: k.cfg.Domain},
			Name:   k.cfg.Tenant,
		}},
	}}
}
