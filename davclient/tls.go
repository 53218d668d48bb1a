package davclient

import (
	"crypto"
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"software.sslmate.com/src/go-pkcs12"
)

func loadClientCertificate(pfx []byte, passphrase string) (tls.Certificate, error) {
	key, leaf, cas, err := pkcs12.DecodeChain(pfx, passphrase)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decode pkcs12 failed, err:%w", err)
	}
	return buildCertificate(key, append([]*x509.Certificate{leaf}, cas...))
}

// buildCertificate picks the certificate matching key as leaf, whatever its position
// in the bundle, and keeps the others as chain.
func buildCertificate(key crypto.PrivateKey, certs []*x509.Certificate) (tls.Certificate, error) {
	signer, ok := key.(crypto.Signer)
	if !ok {
		return tls.Certificate{}, fmt.Errorf("unsupported private key type:%T", key)
	}
	pub, ok := signer.Public().(interface{ Equal(crypto.PublicKey) bool })
	if !ok {
		return tls.Certificate{}, fmt.Errorf("unsupported public key type:%T", signer.Public())
	}
	var leaf *x509.Certificate
	chain := make([]*x509.Certificate, 0, len(certs))
	for _, c := range certs {
		if c == nil {
			continue
		}
		if leaf == nil && pub.Equal(c.PublicKey) {
			leaf = c
			continue
		}
		chain = append(chain, c)
	}
	if leaf == nil {
		return tls.Certificate{}, fmt.Errorf("no certificate matches the private key")
	}
	cert := tls.Certificate{
		Certificate: [][]byte{leaf.Raw},
		PrivateKey:  key,
		Leaf:        leaf,
	}
	for _, c := range chain {
		cert.Certificate = append(cert.Certificate, c.Raw)
	}
	return cert, nil
}

func loadRootCAs(raw []byte) (*x509.CertPool, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(raw) {
		return nil, fmt.Errorf("no ca certificate found in pem data")
	}
	return pool, nil
}

// chainVerifier checks the server chain against roots (system roots when nil) without matching the hostname.
func chainVerifier(roots *x509.CertPool) func([][]byte, [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return fmt.Errorf("no server certificate found")
		}
		certs := make([]*x509.Certificate, 0, len(rawCerts))
		for _, raw := range rawCerts {
			c, err := x509.ParseCertificate(raw)
			if err != nil {
				return fmt.Errorf("parse server certificate failed, err:%w", err)
			}
			certs = append(certs, c)
		}
		inter := x509.NewCertPool()
		for _, c := range certs[1:] {
			inter.AddCert(c)
		}
		if _, err := certs[0].Verify(x509.VerifyOptions{Roots: roots, Intermediates: inter}); err != nil {
			return fmt.Errorf("verify server certificate failed, err:%w", err)
		}
		return nil
	}
}

// buildTLSConfig turns the per request options into a tls.Config.
//
// Ordinary calls are lenient unless StrictSSL is set. Certificate auth presents the
// client identity and accepts hostname mismatches, the chain is still verified
// unless RejectUnauthorized is false.
func buildTLSConfig(o *TLSOptions) (*tls.Config, error) {
	if o == nil {
		return &tls.Config{InsecureSkipVerify: true}, nil
	}
	roots, err := loadRootCAs(o.RootCAs)
	if err != nil {
		return nil, err
	}
	if len(o.PFX) == 0 {
		return &tls.Config{InsecureSkipVerify: !o.StrictSSL, RootCAs: roots}, nil
	}
	cert, err := loadClientCertificate(o.PFX, o.Passphrase)
	if err != nil {
		return nil, err
	}
	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      roots,
		MinVersion:   o.MinVersion,
		MaxVersion:   o.MaxVersion,
	}
	switch {
	case !o.RejectUnauthorized:
		cfg.InsecureSkipVerify = true
	case o.RelaxedHostname:
		cfg.InsecureSkipVerify = true
		cfg.VerifyPeerCertificate = chainVerifier(roots)
	}
	return cfg, nil
}
