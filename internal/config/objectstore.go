package config

type ObjectStore struct {
	Endpoint  string `env:"OBJECT_STORE_ENDPOINT,required"`
	AccessKey string `env:"OBJECT_STORE_ACCESS_KEY,required"`
	SecretKey string `env:"OBJECT_STORE_SECRET_KEY,required"`
	Bucket    string `env:"OBJECT_STORE_BUCKET" envDefault:"product-images"`
	UseSSL    bool   `env:"OBJECT_STORE_USE_SSL" envDefault:"false"`
	// PublicURL is the base used to build image URLs, e.g. https://cdn.example.com.
	PublicURL string `env:"OBJECT_STORE_PUBLIC_URL,required"`
}
