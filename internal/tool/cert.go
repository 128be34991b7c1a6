package tool

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	certFilename = "cert.pem"
	keyFilename  = "key.pem"
	certValidity = 10
)

// EnsureCertificate returns the self-signed certificate and key kept in dir,
// generating them on first use.
func EnsureCertificate(dir string, commonName string, hostnames []string) (certFile, keyFile string, err error) {
	certFile = filepath.Join(dir, certFilename)
	keyFile = filepath.Join(dir, keyFilename)

	certExists, err := IsFileExists(certFile)
	if err != nil {
		return "", "", err
	}
	keyExists, err := IsFileExists(keyFile)
	if err != nil {
		return "", "", err
	}
	if certExists && keyExists {
		return certFile, keyFile, nil
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", "", fmt.Errorf("unable to create %s: %w", dir, err)
	}
	if err := GenerateTlsCertificate(commonName, keyFile, certFile, hostnames); err != nil {
		return "", "", fmt.Errorf("unable to generate certificate: %w", err)
	}
	return certFile, keyFile, nil
}

func GenerateTlsCertificate(commonName string, keyFile, certFile string, hostnames []string) error {
	notBefore := time.Now()
	notAfter := notBefore.AddDate(certValidity, 0, 0)

	serverKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return err
	}
	if err := writeKey(keyFile, serverKey); err != nil {
		return err
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return err
	}
	template := x509.Certificate{
		SerialNumber:          serialNumber,
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, h := range hostnames {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &serverKey.PublicKey, serverKey)
	if err != nil {
		return err
	}
	return writePem(certFile, 0o644, &pem.Block{Type: "CERTIFICATE", Bytes: derBytes})
}

func writeKey(filename string, key *ecdsa.PrivateKey) error {
	b, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return err
	}
	return writePem(filename, 0o600, &pem.Block{Type: "EC PRIVATE KEY", Bytes: b})
}

func writePem(filename string, perm os.FileMode, block *pem.Block) error {
	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if err := pem.Encode(file, block); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func IsFileExists(filename string) (bool, error) {
	_, err := os.Stat(filename)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
